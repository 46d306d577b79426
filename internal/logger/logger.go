// Package logger is the CLI output channel: a stderr log carrying the
// tool prefix.
package logger

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "[ifccheck] ", log.LstdFlags)

func Printf(format string, v ...any) {
	std.Printf(format, v...)
}

func Println(v ...any) {
	std.Println(v...)
}

func Fatalf(format string, v ...any) {
	std.Fatalf(format, v...)
}
