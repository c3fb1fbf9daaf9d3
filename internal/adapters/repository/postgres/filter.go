package postgres

import (
	"fmt"
	"strconv"
	"strings"
)

// Op は条件式の比較演算子です。
type Op string

const (
	OpEqual     Op = "="
	OpNotEqual  Op = "<>"
	OpLess      Op = "<"
	OpLessEq    Op = "<="
	OpGreater   Op = ">"
	OpGreaterEq Op = ">="
	OpIsNull    Op = "IS NULL"
	OpIsNotNull Op = "IS NOT NULL"
)

// Condition は (フィールド, 演算子, 値) の 1 条件です。
// 動的な検索条件はこの中間表現に集約し、SQL への変換はここでのみ行います。
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq は等値条件を作るショートカットです。
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEqual, Value: value}
}

// Filter は AND で結合される条件の列です。
type Filter []Condition

// Where は条件列から WHERE 句とバインド引数を構築します。
// 条件が空の場合は空文字列を返します。プレースホルダは startIndex から採番します。
func (f Filter) Where(startIndex int) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	idx := startIndex

	for _, c := range f {
		switch c.Op {
		case OpIsNull, OpIsNotNull:
			clauses = append(clauses, fmt.Sprintf("%s %s", c.Field, c.Op))
		default:
			clauses = append(clauses, fmt.Sprintf("%s %s $%s", c.Field, c.Op, strconv.Itoa(idx)))
			args = append(args, c.Value)
			idx++
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
