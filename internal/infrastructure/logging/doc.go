// Package logging provides structured logging built on zap.
//
// Production output is JSON; development output is colorized console.
// Domain packages receive a *Logger at construction rather than using
// a package-level global.
package logging
