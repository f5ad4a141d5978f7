package logger

import (
	"github.com/teranos/vista/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// The glyph is logged as a structured field, not in the message, so logs stay
// queryable by mode:
//
//	logger.AddModeSymbol(m.logger, "3d").Infow("Entered mode", "first_entry", true)

// AddModeSymbol wraps a logger with the glyph of a view mode
func AddModeSymbol(l *zap.SugaredLogger, mode string) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.ForMode(mode), FieldMode, mode)
}

// AddPhysicsSymbol wraps a logger with the physics symbol (∿)
func AddPhysicsSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Physics)
}

// AddReprojectSymbol wraps a logger with the re-projection symbol (↻)
func AddReprojectSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Reproj)
}

// AddDatasetSymbol wraps a logger with the dataset symbol (⊔)
func AddDatasetSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Dataset)
}

// ModeInfow logs an info message on the global logger tagged with a mode glyph
func ModeInfow(mode, msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.ForMode(mode), FieldMode, mode}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
