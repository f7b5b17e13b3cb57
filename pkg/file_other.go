//go:build !linux

package masshash

import "os"

func adviseSequential(file *os.File) {}
