// Copyright (c) 2015-2021 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build js

package prompt

import "fmt"

func Secret(string) (string, error) {
	return "", fmt.Errorf("prompt not supported in WebAssembly")
}

func RPCPassword(string) (string, error) {
	return "", fmt.Errorf("prompt not supported in WebAssembly")
}
