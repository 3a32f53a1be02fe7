// Package model はランダムフォレストのモデルヘッダーの永続化を提供します。
package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/aschampion/vigra/pkg/errors"
	"github.com/aschampion/vigra/randomforest"
)

// Persistable はファイルへ保存・読み込みできるモデルのインターフェースです。
type Persistable interface {
	// Save saves the model to a file.
	Save(path string) error
	// Load loads the model from a file.
	Load(path string) error
}

// ForestHeader はモデルファイルがツリー構造と並べて埋め込む
// 学習設定と問題記述のペアです。
//
// gobエンコードは両フィールドのフラットバッファ直列化に基づくため、
// 外部関数フィールドはファイルを往復しません（存在フラグのみ残ります）。
type ForestHeader struct {
	Options *randomforest.Options
	Spec    *randomforest.ProblemSpec
}

// NewForestHeader は設定と問題記述からヘッダーを作成します。
// どちらもnilの場合はデフォルト値で埋められます。
func NewForestHeader(opts *randomforest.Options, spec *randomforest.ProblemSpec) *ForestHeader {
	if opts == nil {
		opts = randomforest.NewOptions()
	}
	if spec == nil {
		spec = randomforest.NewProblemSpec()
	}
	return &ForestHeader{Options: opts, Spec: spec}
}

// Equal は二つのヘッダーの構造的等価性を判定します。
func (h *ForestHeader) Equal(other *ForestHeader) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.Options.Equal(other.Options) && h.Spec.Equal(other.Spec)
}

// Save はヘッダーをファイルに保存します。
//
// 使用例:
//
//	h := model.NewForestHeader(opts, spec)
//	err := h.Save("model.gob")
func (h *ForestHeader) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.NewModelError("ForestHeader.Save", "create file", err)
	}
	defer file.Close()

	return h.Write(file)
}

// Load はファイルからヘッダーを読み込みます。
func (h *ForestHeader) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.NewModelError("ForestHeader.Load", "open file", err)
	}
	defer file.Close()

	return h.Read(file)
}

// Write はヘッダーをio.Writerに書き込みます。
func (h *ForestHeader) Write(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(h); err != nil {
		return errors.NewModelError("ForestHeader.Write", "encode header", err)
	}
	return nil
}

// Read はio.Readerからヘッダーを読み込みます。
// 破損した入力によるgob内部のパニックはPanicErrorとして回収されます。
func (h *ForestHeader) Read(r io.Reader) (err error) {
	defer errors.Recover(&err, "ForestHeader.Read")
	if err := gob.NewDecoder(r).Decode(h); err != nil {
		return errors.NewModelError("ForestHeader.Read", "decode header", err)
	}
	return nil
}
