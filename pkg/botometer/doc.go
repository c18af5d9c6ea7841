// Package botometer calls the bot-likelihood scoring service through its
// RapidAPI gateway.
package botometer
