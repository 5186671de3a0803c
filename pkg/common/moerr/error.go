// Copyright 2023 Matrix Origin
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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"runtime/debug"
)

const MySQLDefaultSqlState = "HY000"

// Error codes are part of the wire contract with clients. Never renumber.
const (
	// 0 - 99 is OK.
	Ok    uint16 = 0
	OkMax uint16 = 99

	// Group 1: Internal errors
	ErrStart    uint16 = 20100
	ErrInternal uint16 = 20101
	ErrNYI      uint16 = 20102

	// Group 2: argument and type errors
	ErrBadArguments    uint16 = 20201
	ErrIllegalDataType uint16 = 20202
	ErrSyntax          uint16 = 20203

	// Group 3: catalog and metadata
	ErrUnknownDatabase uint16 = 20301
	ErrUnknownTable    uint16 = 20302
	ErrAlreadyExists   uint16 = 20303
	ErrNotFound        uint16 = 20304
	ErrUnknownFunction uint16 = 20305

	// Group 4: execution and io
	ErrAborted       uint16 = 20401
	ErrUnexpectedEOF uint16 = 20402
	ErrStorageIO     uint16 = 20403
	ErrConflict      uint16 = 20404

	// Group End: max value of MOErrorCode
	ErrEnd uint16 = 65535
)

type moErrorMsgItem struct {
	mysqlCode        uint16
	sqlStates        []string
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]moErrorMsgItem{
	// Group 1: Internal errors
	ErrStart:    {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: error code start"},
	ErrInternal: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: %s"},
	ErrNYI:      {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "%s is not yet implemented"},

	// Group 2: argument and type errors
	ErrBadArguments:    {ER_WRONG_ARGUMENTS, []string{MySQLDefaultSqlState}, "%s"},
	ErrIllegalDataType: {ER_WRONG_ARGUMENTS, []string{MySQLDefaultSqlState}, "illegal data type: %s"},
	ErrSyntax:          {ER_SYNTAX_ERROR, []string{"42000"}, "sql parser error: %s"},

	// Group 3: catalog and metadata
	ErrUnknownDatabase: {ER_BAD_DB_ERROR, []string{"42000"}, "%s"},
	ErrUnknownTable:    {ER_NO_SUCH_TABLE, []string{"42S02"}, "%s"},
	ErrAlreadyExists:   {ER_DB_CREATE_EXISTS, []string{MySQLDefaultSqlState}, "%s"},
	ErrNotFound:        {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "%s"},
	ErrUnknownFunction: {ER_SP_DOES_NOT_EXIST, []string{"42000"}, "Unsupported Function, name: %s"},

	// Group 4: execution and io
	ErrAborted:       {ER_QUERY_INTERRUPTED, []string{"70100"}, "aborted: %s"},
	ErrUnexpectedEOF: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "unexpected end of file %s"},
	ErrStorageIO:     {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "storage io error: %s"},
	ErrConflict:      {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "commit conflict: %s"},

	// Group End: max value of MOErrorCode
	ErrEnd: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: end of errcode code"},
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	var err *Error
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError(ctx, "not exist MOErrorCode: %d", code))
	}
	if len(args) == 0 {
		err = &Error{
			code:      code,
			mysqlCode: item.mysqlCode,
			message:   item.errorMsgOrFormat,
			sqlState:  item.sqlStates[0],
		}
	} else {
		err = &Error{
			code:      code,
			mysqlCode: item.mysqlCode,
			message:   fmt.Sprintf(item.errorMsgOrFormat, args...),
			sqlState:  item.sqlStates[0],
		}
	}
	return err
}

type Error struct {
	code      uint16
	mysqlCode uint16
	message   string
	sqlState  string
	detail    string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Detail() string {
	return e.detail
}

func (e *Error) Display() string {
	if len(e.detail) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.detail)
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) MySQLCode() uint16 {
	return e.mysqlCode
}

func (e *Error) SqlState() string {
	return e.sqlState
}

// WithDetail returns a copy of e carrying extra context such as an object path.
func (e *Error) WithDetail(detail string) *Error {
	ne := *e
	ne.detail = detail
	return &ne
}

// IsMoErrCode reports whether e, or any error it wraps, is a *Error with code rc.
func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}
	var me *Error
	if !errors.As(e, &me) {
		return false
	}
	return me.code == rc
}

// IsAborted reports a query cancellation. Consumers treat it as a normal
// termination of the result stream rather than a failure.
func IsAborted(e error) bool {
	return IsMoErrCode(e, ErrAborted)
}

func IsNotFound(e error) bool {
	return IsMoErrCode(e, ErrNotFound)
}

// ConvertPanicError converts a runtime panic to internal error.
func ConvertPanicError(ctx context.Context, v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return newError(ctx, ErrInternal, fmt.Sprintf("panic %v: %s", v, debug.Stack()))
}

// ConvertGoError converts a go error into mo error.
// Note here we must return error, because nil error
// is the same as nil *Error -- Go strangeness.
func ConvertGoError(ctx context.Context, err error) error {
	if err == nil {
		return err
	}

	var me *Error
	if errors.As(err, &me) {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewAborted(ctx, err.Error())
	case err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF):
		// if io.EOF reaches here, we believe it is not expected.
		return NewUnexpectedEOF(ctx, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		return NewNotFound(ctx, err.Error())
	case errors.Is(err, fs.ErrExist):
		return NewAlreadyExists(ctx, err.Error())
	}

	return NewInternalError(ctx, "convert go error to mo error %v", err)
}

func Context() context.Context {
	return context.Background()
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(Context(), msg, args...)
}

func NewNYI(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNYI, xmsg)
}

func NewBadArguments(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadArguments, xmsg)
}

func NewBadArgumentsNoCtx(msg string, args ...any) *Error {
	return NewBadArguments(Context(), msg, args...)
}

func NewIllegalDataType(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrIllegalDataType, xmsg)
}

func NewSyntaxError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrSyntax, xmsg)
}

func NewUnknownDatabase(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrUnknownDatabase, xmsg)
}

func NewUnknownTable(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrUnknownTable, xmsg)
}

func NewAlreadyExists(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrAlreadyExists, xmsg)
}

func NewNotFound(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNotFound, xmsg)
}

func NewNotFoundNoCtx(msg string, args ...any) *Error {
	return NewNotFound(Context(), msg, args...)
}

func NewUnknownFunction(ctx context.Context, name string) *Error {
	return newError(ctx, ErrUnknownFunction, name)
}

func NewAborted(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrAborted, xmsg)
}

func NewAbortedNoCtx(msg string, args ...any) *Error {
	return NewAborted(Context(), msg, args...)
}

func NewUnexpectedEOF(ctx context.Context, f string) *Error {
	return newError(ctx, ErrUnexpectedEOF, f)
}

func NewStorageIO(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrStorageIO, xmsg)
}

func NewConflict(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrConflict, xmsg)
}

func NewStorageIONoCtx(msg string, args ...any) *Error {
	return NewStorageIO(Context(), msg, args...)
}

func NewIllegalDataTypeNoCtx(msg string, args ...any) *Error {
	return NewIllegalDataType(Context(), msg, args...)
}

func NewConflictNoCtx(msg string, args ...any) *Error {
	return NewConflict(Context(), msg, args...)
}

func NewUnknownDatabaseNoCtx(msg string, args ...any) *Error {
	return NewUnknownDatabase(Context(), msg, args...)
}

func NewUnknownTableNoCtx(msg string, args ...any) *Error {
	return NewUnknownTable(Context(), msg, args...)
}

func NewAlreadyExistsNoCtx(msg string, args ...any) *Error {
	return NewAlreadyExists(Context(), msg, args...)
}
