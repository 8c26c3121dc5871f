// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package envelope

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
)

var (
	errShortFrame       = errors.New("envelope: frame shorter than fixed header")
	errTruncatedPayload = errors.New("envelope: declared payload length exceeds frame")
	errTruncatedField   = errors.New("envelope: field runs past end of payload")
)

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendString16(buf []byte, s string) []byte {
	buf = appendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

// byteReader is a minimal cursor over the payload buffer; it never
// copies field bytes except into a string (unavoidable once Go reads a
// []byte slice into a string header), keeping with "rebuild typed views
// on demand" rather than a self-referential decoded structure.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return storeerr.New(storeerr.InvalidFlatbuffer).WithCause(errTruncatedField)
	}
	return nil
}

func (r *byteReader) uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) boolean() (bool, error) {
	if err := r.need(1); err != nil {
		return false, err
	}
	v := r.buf[r.pos] != 0
	r.pos++
	return v, nil
}

func (r *byteReader) string16() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *byteReader) value() (Value, error) {
	col, err := r.string16()
	if err != nil {
		return Value{}, err
	}
	if err := r.need(1); err != nil {
		return Value{}, err
	}
	vt := ValueType(r.buf[r.pos])
	r.pos++

	v := Value{Column: col, Type: vt}
	switch vt {
	case VTag, VString:
		v.Str, err = r.string16()
	case VI64:
		var u uint64
		u, err = r.uint64()
		v.I64 = int64(u)
	case VU64:
		v.U64, err = r.uint64()
	case VF64:
		var u uint64
		u, err = r.uint64()
		v.F64 = math.Float64frombits(u)
	case VBool:
		v.Bool, err = r.boolean()
	case VNone:
	}
	if err != nil {
		return Value{}, err
	}
	return v, nil
}
