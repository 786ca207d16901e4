package mapper

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/sleepstars/kland/internal/model"
	"github.com/sleepstars/kland/internal/source"
	"time"
)

// TimeLayout 不带时区的日期时间文本
const TimeLayout = "2006-01-02 15:04:05.999999999"

var ErrMissingField = errors.New("missing required field")

// RowError 第一条无法转换的行，整批作废
type RowError struct {
	Kind  model.Kind
	Index int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("map %s row %d: %s: %v", e.Kind, e.Index, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func Thread(row source.ThreadRow) (model.Thread, error) {
	var f fields
	t := model.Thread{
		ID:      f.reqInt("tid", row.ID),
		Created: f.reqTime("created", row.Created),
		Subject: f.reqString("subject", row.Subject),
		Deleted: f.reqBool("deleted", row.Deleted),
		Hash:    optional(row.Hash),
	}
	return t, f.err
}

func Post(row source.PostRow) (model.Post, error) {
	var f fields
	p := model.Post{
		ID:        f.reqInt("pid", row.ID),
		ThreadID:  f.reqInt("tid", row.ThreadID),
		Created:   f.reqTime("created", row.Created),
		Content:   f.reqString("content", row.Content),
		Options:   f.reqString("options", row.Options),
		IPAddress: f.reqString("ipaddress", row.IPAddress),
		Username:  optional(row.Username),
		TripRaw:   optional(row.TripRaw),
		Image:     optional(row.Image),
	}
	return p, f.err
}

func Ban(row source.BanRow) (model.Ban, error) {
	var f fields
	b := model.Ban{
		Range:   f.reqString("range", row.Range),
		Created: f.reqTime("created", row.Created),
		Note:    optional(row.Note),
	}
	return b, f.err
}

func Threads(rows []source.ThreadRow) ([]model.Thread, error) {
	return mapAll(model.KindThreads, rows, Thread)
}

func Posts(rows []source.PostRow) ([]model.Post, error) {
	return mapAll(model.KindPosts, rows, Post)
}

func Bans(rows []source.BanRow) ([]model.Ban, error) {
	return mapAll(model.KindBans, rows, Ban)
}

func mapAll[R, M any](kind model.Kind, rows []R, fn func(R) (M, error)) ([]M, error) {
	out := make([]M, 0, len(rows))
	for i, row := range rows {
		rec, err := fn(row)
		if err != nil {
			var fe *fieldError
			if errors.As(err, &fe) {
				return nil, &RowError{Kind: kind, Index: i, Field: fe.field, Err: fe.err}
			}
			return nil, &RowError{Kind: kind, Index: i, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.field + ": " + e.err.Error() }

// fields 只保留一行中第一个缺失的必填字段
type fields struct {
	err error
}

func (f *fields) fail(name string) {
	if f.err == nil {
		f.err = &fieldError{field: name, err: ErrMissingField}
	}
}

func (f *fields) reqInt(name string, v sql.NullInt64) int64 {
	if !v.Valid {
		f.fail(name)
	}
	return v.Int64
}

func (f *fields) reqString(name string, v sql.NullString) string {
	if !v.Valid {
		f.fail(name)
	}
	return v.String
}

func (f *fields) reqBool(name string, v sql.NullBool) bool {
	if !v.Valid {
		f.fail(name)
	}
	return v.Bool
}

func (f *fields) reqTime(name string, v sql.NullTime) string {
	if !v.Valid {
		f.fail(name)
		return ""
	}
	return FormatTime(v.Time)
}

// FormatTime 原样输出，不做时区转换
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

func optional(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
