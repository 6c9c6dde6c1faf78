// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"syscall"
)

// Address reuse carries different semantics on Windows; the listening socket
// is left with the defaults there.
func listenControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
