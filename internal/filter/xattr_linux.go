package filter

import "golang.org/x/sys/unix"

const errNoAttrErrno = unix.ENODATA
