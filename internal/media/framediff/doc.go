// Package framediff scores how much consecutive still frames differ.
//
// Frames are decoded from the BMP files ffmpeg writes, shrunk to an eighth of
// their size with nearest-neighbour sampling, and compared channel by channel
// as the mean absolute RGB difference in [0,1].
package framediff
