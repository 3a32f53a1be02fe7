// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// VIGRAのvigra_preconditionスタイルの事前条件チェックを、構造化されたGoのエラーとして表現します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("vigra-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定し、
// 以前のハンドラを返します。テストでは戻り値で元のハンドラを復元してください。
//
// 例:
//
//	prev := errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
//	defer errors.SetWarningHandler(prev)
func SetWarningHandler(handler func(w error)) (prev func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	prev = warningHandler
	warningHandler = handler
	return prev
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// 不正なオプションタグなど、呼び出し側のプログラミングエラーを示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("vigra: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// BufferSizeError はserialize/unserializeに渡されたバッファ長が
// 期待値と一致しない場合のエラーです。
type BufferSizeError struct {
	Op       string
	Expected int
	Got      int
}

func (e *BufferSizeError) Error() string {
	return fmt.Sprintf("vigra: %s: wrong number of parameters. Expected %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *BufferSizeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "BufferSizeError")
}

// NewBufferSizeError は新しいBufferSizeErrorを作成し、スタックトレースを付与します。
func NewBufferSizeError(op string, expected, got int) error {
	err := &BufferSizeError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// IndexError はインデックスが有効範囲外の場合のエラーです。
type IndexError struct {
	Op    string
	Index int
	Limit int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("vigra: %s: index %d out of range [0, %d)", e.Op, e.Index, e.Limit)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *IndexError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("index", e.Index).
		Int("limit", e.Limit).
		Str("type", "IndexError")
}

// NewIndexError は新しいIndexErrorを作成し、スタックトレースを付与します。
func NewIndexError(op string, index, limit int) error {
	err := &IndexError{Op: op, Index: index, Limit: limit}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("vigra: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("vigra: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError はモデルの保存・読み込みに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vigra: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("vigra: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// LossySerializationWarning は直列化で一部の情報が失われる場合の警告です。
// 外部関数フィールドはフラットバッファに保存できないため、存在フラグのみが残ります。
type LossySerializationWarning struct {
	Object string
	Field  string
}

func (w *LossySerializationWarning) Error() string {
	return fmt.Sprintf("%s: field '%s' cannot be serialized and will not survive a round trip", w.Object, w.Field)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *LossySerializationWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("object", w.Object).
		Str("field", w.Field).
		Str("type", "LossySerializationWarning")
}

// NewLossySerializationWarning は新しいLossySerializationWarningを作成します。
func NewLossySerializationWarning(object, field string) *LossySerializationWarning {
	return &LossySerializationWarning{Object: object, Field: field}
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
