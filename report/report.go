// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package report renders settlement records as a plain text file with one
// field per line.
package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcsettle/provenance"
	"github.com/shopspring/decimal"
)

// DefaultPath is the report location used when none is configured.
const DefaultPath = "out.txt"

// Undecodable is written in place of a sender address whose script does not
// decode.
const Undecodable = "undecodable"

// FormatBTC renders amount in BTC with exactly eight decimals.  The satoshi
// value is scaled as a decimal, so no rounding can occur.
func FormatBTC(amount btcutil.Amount) string {
	return decimal.New(int64(amount), -8).StringFixed(8)
}

// Lines returns the report fields of r in report order: txid, sender address,
// sender input, receiver address, receiver amount, change address, change
// amount, fee, block height and block hash.
func Lines(r *provenance.Record) []string {
	sender := Undecodable
	r.SenderAddress.WhenSome(func(addr btcutil.Address) {
		sender = addr.EncodeAddress()
	})

	var change string
	r.ChangeAddress.WhenSome(func(addr btcutil.Address) {
		change = addr.EncodeAddress()
	})

	return []string{
		r.TxID.String(),
		sender,
		FormatBTC(r.SenderInput),
		r.ReceiverAddress.EncodeAddress(),
		FormatBTC(r.ReceiverAmount),
		change,
		FormatBTC(r.ChangeAmount),
		FormatBTC(r.Fee),
		strconv.FormatInt(int64(r.BlockHeight), 10),
		r.BlockHash.String(),
	}
}

// Serialize writes the report of r to w, one newline terminated field per
// line.
func Serialize(w io.Writer, r *provenance.Record) error {
	var buf bytes.Buffer
	for _, line := range Lines(r) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Write replaces the file at path with the report of r.  The report is
// written to a temporary file in the same directory and renamed into place,
// so readers see either the previous file or the complete report.
func Write(path string, r *provenance.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// The temporary file is removed unless it was renamed into place.
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := Serialize(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	renamed = true

	log.Infof("Wrote report for %v to %s", r.TxID, path)

	return nil
}
