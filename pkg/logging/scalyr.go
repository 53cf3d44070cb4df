package logging

import (
	"encoding/json"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// ScalyrEncoder writes one flat JSON object per entry in the layout Scalyr
// parses: timestamp, level, message, caller parts, then the entry fields.
type ScalyrEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
	fields *zapcore.MapObjectEncoder
}

// NewScalyrEncoder creates a new Scalyr-compatible encoder
func NewScalyrEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	return &ScalyrEncoder{
		Encoder: zapcore.NewJSONEncoder(config),
		config:  config,
		fields:  zapcore.NewMapObjectEncoder(),
	}
}

// AddString keeps fields attached with logger.With so they reach EncodeEntry.
func (e *ScalyrEncoder) AddString(key, value string) {
	e.fields.AddString(key, value)
}

// AddInt64 keeps integer context fields.
func (e *ScalyrEncoder) AddInt64(key string, value int64) {
	e.fields.AddInt64(key, value)
}

// AddBool keeps boolean context fields.
func (e *ScalyrEncoder) AddBool(key string, value bool) {
	e.fields.AddBool(key, value)
}

// EncodeEntry encodes a log entry in Scalyr-compatible format
func (e *ScalyrEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	enc := zapcore.NewMapObjectEncoder()
	for k, v := range e.fields.Fields {
		enc.Fields[k] = v
	}
	for _, field := range fields {
		field.AddTo(enc)
	}

	logObj := make(map[string]interface{}, len(enc.Fields)+7)
	for k, v := range enc.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		logObj[k] = v
	}

	logObj["timestamp"] = entry.Time.UTC().Format(time.RFC3339Nano)
	logObj["level"] = entry.Level.String()
	logObj["message"] = entry.Message
	if entry.LoggerName != "" {
		logObj["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		logObj["file"] = entry.Caller.File
		logObj["line"] = entry.Caller.Line
		logObj["function"] = entry.Caller.Function
	}
	if entry.Stack != "" {
		logObj["stack"] = entry.Stack
	}

	data, err := json.Marshal(logObj)
	if err != nil {
		return nil, err
	}

	buf := bufferPool.Get()
	buf.AppendBytes(data)
	buf.AppendString(zapcore.DefaultLineEnding)
	return buf, nil
}

// Clone creates a copy of the encoder
func (e *ScalyrEncoder) Clone() zapcore.Encoder {
	fields := zapcore.NewMapObjectEncoder()
	for k, v := range e.fields.Fields {
		fields.Fields[k] = v
	}
	return &ScalyrEncoder{
		Encoder: e.Encoder.Clone(),
		config:  e.config,
		fields:  fields,
	}
}
