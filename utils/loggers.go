package utils

import (
	"io"
	"log"
	"os"
)

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

var (
	infoLogger    = log.New(os.Stdout, "INFO: ", logFlags)
	warningLogger = log.New(os.Stdout, "WARNING: ", logFlags)
	errorLogger   = log.New(os.Stderr, "ERROR: ", logFlags)
)

func InitLogger() {
	infoLogger = log.New(os.Stdout, "INFO: ", logFlags)
	warningLogger = log.New(os.Stdout, "WARNING: ", logFlags)
	errorLogger = log.New(os.Stderr, "ERROR: ", logFlags)
}

// SetLogOutput redirects all leveled loggers, mainly for tests.
func SetLogOutput(w io.Writer) {
	infoLogger.SetOutput(w)
	warningLogger.SetOutput(w)
	errorLogger.SetOutput(w)
}

func LogInfo(message string) {
	infoLogger.Output(2, message)
}

func LogWarning(message string) {
	warningLogger.Output(2, message)
}

func LogError(message string, err error) {
	if err != nil {
		errorLogger.Output(2, message+": "+err.Error())
	} else {
		errorLogger.Output(2, message)
	}
}

func LogFatal(message string, err error) {
	if err != nil {
		errorLogger.Fatalf("%s: %v", message, err)
	} else {
		errorLogger.Fatal(message)
	}
}
