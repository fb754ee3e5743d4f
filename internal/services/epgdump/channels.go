package epgdump

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Channel is one entry of a mirakurun-style channels.yml.
type Channel struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Channel   string `yaml:"channel"`
	ServiceID int    `yaml:"serviceId"`
}

// LoadChannels reads a channel list. A missing file yields an empty list.
func LoadChannels(path string) ([]Channel, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read channels: %w", err)
	}
	var channels []Channel
	if err := yaml.Unmarshal(data, &channels); err != nil {
		return nil, fmt.Errorf("parse channels %s: %w", path, err)
	}
	return channels, nil
}

// ChannelName returns the display name for serviceID.
func ChannelName(channels []Channel, serviceID int) (string, bool) {
	for _, ch := range channels {
		if ch.ServiceID == serviceID {
			return ch.Name, true
		}
	}
	return "", false
}
