package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint32

// Levels mirror logrus severity ordering (lower is more severe).
const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

// EntryZ is an in-flight log line built from typed fields. A nil *EntryZ is
// valid and ignores all calls, so disabled modules cost a single mask check.
type EntryZ struct {
	mod Module
	lvl Level
	msg string

	zfidx int
	zfbuf [16]ZField
}

var entryzPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	return entryzPool.Get().(*EntryZ)
}

// Context adds fields to every emitted log line. Typically registered once by
// the machine to stamp lines with its current state.
type Context interface {
	AddLogContext(e *EntryZ)
}

var contexts []Context

func AddContext(c Context) {
	contexts = append(contexts, c)
}

func (e *EntryZ) add(f ZField) *EntryZ {
	if e == nil {
		return nil
	}
	if e.zfidx < len(e.zfbuf) {
		e.zfbuf[e.zfidx] = f
		e.zfidx++
	}
	return e
}

func (e *EntryZ) Bool(key string, v bool) *EntryZ {
	return e.add(ZField{Type: FieldTypeBool, Key: key, Boolean: v})
}

func (e *EntryZ) String(key string, v string) *EntryZ {
	return e.add(ZField{Type: FieldTypeString, Key: key, String: v})
}

func (e *EntryZ) Int(key string, v int) *EntryZ {
	return e.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Int64(key string, v int64) *EntryZ {
	return e.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Uint32(key string, v uint32) *EntryZ {
	return e.add(ZField{Type: FieldTypeUint, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Uint64(key string, v uint64) *EntryZ {
	return e.add(ZField{Type: FieldTypeUint, Key: key, Integer: v})
}

func (e *EntryZ) Hex8(key string, v uint8) *EntryZ {
	return e.add(ZField{Type: FieldTypeHex8, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Hex16(key string, v uint16) *EntryZ {
	return e.add(ZField{Type: FieldTypeHex16, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Hex32(key string, v uint32) *EntryZ {
	return e.add(ZField{Type: FieldTypeHex32, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Hex64(key string, v uint64) *EntryZ {
	return e.add(ZField{Type: FieldTypeHex64, Key: key, Integer: v})
}

func (e *EntryZ) Error(key string, v error) *EntryZ {
	return e.add(ZField{Type: FieldTypeError, Key: key, Error: v})
}

func (e *EntryZ) Duration(key string, v time.Duration) *EntryZ {
	return e.add(ZField{Type: FieldTypeDuration, Key: key, Duration: v})
}

func (e *EntryZ) Stringer(key string, v fmt.Stringer) *EntryZ {
	return e.add(ZField{Type: FieldTypeStringer, Key: key, Interface: v})
}

func (e *EntryZ) Blob(key string, v []byte) *EntryZ {
	return e.add(ZField{Type: FieldTypeBlob, Key: key, Blob: v})
}

// End emits the log line and recycles the entry.
func (e *EntryZ) End() {
	if e == nil {
		return
	}

	for _, c := range contexts {
		c.AddLogContext(e)
	}

	fields := make(logrus.Fields, e.zfidx)
	for i := range e.zfbuf[:e.zfidx] {
		fields[e.zfbuf[i].Key] = e.zfbuf[i].Value()
	}

	line := logrus.StandardLogger().
		WithField("_mod", modNames[e.mod]).
		WithFields(fields)

	msg, lvl := e.msg, e.lvl
	*e = EntryZ{}
	entryzPool.Put(e)

	switch lvl {
	case DebugLevel:
		line.Debug(msg)
	case InfoLevel:
		line.Info(msg)
	case WarnLevel:
		line.Warn(msg)
	case ErrorLevel:
		line.Error(msg)
	case FatalLevel:
		line.Fatal(msg)
	case PanicLevel:
		line.Panic(msg)
	}
}
