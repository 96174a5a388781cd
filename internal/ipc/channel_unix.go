//go:build unix

package ipc

import "syscall"

func closeOnExec(fd int) {
	syscall.CloseOnExec(fd)
}
