// Package processor wires the lanote components together from the loaded
// configuration and implements the command-line operations: adding,
// parsing and syncing vocabulary, listing cards, enriching them, playing
// their pronunciation, recording the learner and recording study answers.
package processor
