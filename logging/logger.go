package logging

import (
	"fmt"
	"log"
	"os"
)

var (
	env = os.Getenv("EMOLENS_ENV")

	prefix = fmt.Sprintf("[emolens env=%s] ", envOrDev())
	flags  = log.LstdFlags | log.Lshortfile | log.Lmicroseconds
)

func envOrDev() string {
	if env == "" {
		return "dev"
	}
	return env
}

func init() {
	// for clients still using the standard log package
	log.SetPrefix(prefix)
	log.SetFlags(flags)
}

// Basic prefixes each log line with the emolens environment identifier
var Basic = &Logger{
	Default: log.New(os.Stderr, prefix, flags),
}

// ForComponent creates a logger whose lines are tagged with the given
// component name (e.g. "dataset", "predict").
func ForComponent(name string) *Logger {
	p := fmt.Sprintf("[emolens env=%s component=%s] ", envOrDev(), name)
	return &Logger{
		Default: log.New(os.Stderr, p, flags),
	}
}

// Logger encapsulates a configured log handler
type Logger struct {
	Default *log.Logger
}

// Interface encapsulates the relevant methods of log.Logger
type Interface interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// Printf implements Interface
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Default.Output(2, fmt.Sprintf(format, v...))
}

// Println implements Interface
func (l *Logger) Println(v ...interface{}) {
	l.Default.Output(2, fmt.Sprintln(v...))
}
