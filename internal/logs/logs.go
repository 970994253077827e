package logs

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New buduje logger aplikacji: plik z rotacją (lumberjack) + opcjonalnie konsola.
func New(logFilePath string, withConsole bool) zerolog.Logger {
	// Format czasu
	zerolog.TimeFieldFormat = time.RFC3339

	// Rotacja: 10 MB na plik, 5 archiwów, max 30 dni
	fileWriter := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
	}

	var writer io.Writer = fileWriter

	if withConsole {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		writer = zerolog.MultiLevelWriter(fileWriter, consoleWriter)
	}

	// Logger z timestampem i info o miejscu wywołania
	logger := zerolog.New(writer).With().
		Timestamp().
		Caller().
		Logger()

	// Ustaw globalny logger
	log.Logger = logger

	return logger
}
