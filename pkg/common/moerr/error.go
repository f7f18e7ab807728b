// Copyright 2024 the vexec Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package moerr

import (
	"context"
	"fmt"
)

const (
	// 0 - 99 is OK. They do not carry failure information.
	Ok uint16 = 0

	// Group 1: internal errors
	ErrStart            uint16 = 20100
	ErrInternal         uint16 = 20101
	ErrNYI              uint16 = 20102
	ErrOOM              uint16 = 20103
	ErrQueryInterrupted uint16 = 20104
	ErrNotSupported     uint16 = 20105

	// Group 2: invalid input
	ErrInvalidInput uint16 = 20200
	ErrTypeMismatch uint16 = 20201
	ErrInvalidArg   uint16 = 20202

	// Group 3: unexpected state
	ErrInvalidState  uint16 = 20300
	ErrAggEvalFailed uint16 = 20301

	ErrEnd uint16 = 65535
)

var errorMsgRefer = map[uint16]string{
	ErrInternal:         "internal error: %s",
	ErrNYI:              "%s is not yet implemented",
	ErrOOM:              "out of memory",
	ErrQueryInterrupted: "query interrupted",
	ErrNotSupported:     "%s is not supported",
	ErrInvalidInput:     "invalid input: %s",
	ErrTypeMismatch:     "type mismatch: %s",
	ErrInvalidArg:       "invalid argument %s, bad value %v",
	ErrInvalidState:     "invalid state %s",
	ErrAggEvalFailed:    "aggregate evaluation failed: %s",
}

// Error is the only error type produced by this module. The code classifies
// the failure; the message is fully rendered at construction time.
type Error struct {
	code    uint16
	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Is(err error) bool {
	t, ok := err.(*Error)
	return ok && t.code == e.code
}

// IsMoErrCode reports whether err is a moerr with the given code.
func IsMoErrCode(err error, code uint16) bool {
	if err == nil {
		return code == Ok
	}
	me, ok := err.(*Error)
	return ok && me.code == code
}

func newError(_ context.Context, code uint16, args ...any) *Error {
	format, ok := errorMsgRefer[code]
	if !ok {
		panic(fmt.Sprintf("moerr: missing format for error code %d", code))
	}
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func NewInternal(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInternal, fmt.Sprintf(msg, args...))
}

func NewInternalNoCtx(msg string, args ...any) *Error {
	return newError(context.Background(), ErrInternal, fmt.Sprintf(msg, args...))
}

func NewNYI(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrNYI, fmt.Sprintf(msg, args...))
}

func NewOOM(ctx context.Context) *Error {
	return newError(ctx, ErrOOM)
}

func NewQueryInterrupted(ctx context.Context) *Error {
	return newError(ctx, ErrQueryInterrupted)
}

func NewNotSupported(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrNotSupported, fmt.Sprintf(msg, args...))
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInvalidInput, fmt.Sprintf(msg, args...))
}

func NewTypeMismatch(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrTypeMismatch, fmt.Sprintf(msg, args...))
}

func NewInvalidArg(ctx context.Context, arg string, val any) *Error {
	return newError(ctx, ErrInvalidArg, arg, val)
}

func NewInvalidState(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInvalidState, fmt.Sprintf(msg, args...))
}

// NewAggEvalFailed wraps a failure raised inside an accumulator kernel. The
// cause's text is preserved; the code marks the execution as unrecoverable.
func NewAggEvalFailed(ctx context.Context, cause error) *Error {
	return newError(ctx, ErrAggEvalFailed, cause.Error())
}

// ConvertPanicError turns a recovered panic into a moerr so the pipeline
// runner can surface it as a normal failure.
func ConvertPanicError(ctx context.Context, v any) *Error {
	if err, ok := v.(*Error); ok {
		return err
	}
	return NewInternal(ctx, fmt.Sprintf("panic %v", v))
}
