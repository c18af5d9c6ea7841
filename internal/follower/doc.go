// Package follower keeps a tracked account's follower store current.
package follower
