// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chunk

import "errors"

var (
	errChunkNotOpen   = errors.New("chunk: write requires OpenMutable state")
	errChunkNotClosed = errors.New("chunk: freeze requires ClosedMutable state")
)
