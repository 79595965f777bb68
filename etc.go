// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"reflect"

	"github.com/cznic/strutil"
	"github.com/cznic/xc"
)

var (
	dict = xc.Dict

	idVoid = TypeID(dict.SID("void"))

	printHooks = strutil.PrettyPrintHooks{
		reflect.TypeOf(TypeID(0)): func(f strutil.Formatter, v interface{}, prefix, suffix string) {
			x := v.(TypeID)
			if x == 0 {
				return
			}

			f.Format(prefix)
			f.Format("%s", dict.S(int(x)))
			f.Format(suffix)
		},
		reflect.TypeOf(Linkage(0)): func(f strutil.Formatter, v interface{}, prefix, suffix string) {
			x := v.(Linkage)

			f.Format(prefix)
			f.Format("%s", x)
			f.Format(suffix)
		},
		reflect.TypeOf(Opcode(0)): func(f strutil.Formatter, v interface{}, prefix, suffix string) {
			x := v.(Opcode)

			f.Format(prefix)
			f.Format("%s", x)
			f.Format(suffix)
		},
	}
)

// PrettyString turns values produced by this package into neatly formatted
// text. It is intended for debugging.
func PrettyString(v interface{}) string {
	return strutil.PrettyString(v, "", "", printHooks)
}
