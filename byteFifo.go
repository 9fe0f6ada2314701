package gxrpc

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import "sync"

// byteFifo buffers bytes pushed by a media receive callback until the
// protocol engine pulls them one at a time. Appends and reads may come from
// different goroutines.
type byteFifo struct {
	mu  sync.Mutex
	buf []byte
}

func (f *byteFifo) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	f.mu.Lock()
	f.buf = append(f.buf, p...)
	f.mu.Unlock()
}

func (f *byteFifo) ReadByte() (byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) == 0 {
		return 0, false
	}
	b := f.buf[0]
	f.buf = f.buf[1:]
	if len(f.buf) == 0 {
		// Release the backing array instead of growing it forever.
		f.buf = nil
	}
	return b, true
}

func (f *byteFifo) Available() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf)
}

func (f *byteFifo) Reset() {
	f.mu.Lock()
	f.buf = nil
	f.mu.Unlock()
}
