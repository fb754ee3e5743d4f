// Package epgdump extracts the program guide embedded in a recording with
// mirakurun-epgdump and renders a plain-text summary of the recorded
// program.
//
// The recorded program is identified by name: an event matches when its
// NFKC-normalized title, with or without bracketed broadcast tags such as
// "[字]", occurs in the NFKC-normalized file name.
package epgdump
