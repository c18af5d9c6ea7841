// Package export flattens the follower store into a delimited file.
package export
