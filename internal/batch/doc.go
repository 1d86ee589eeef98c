// Package batch reads vocabulary import files with one entry per line.
package batch
