//go:build !unix

package fileops

func isCrossDevice(err error) bool {
	return false
}

func isNotDir(err error) bool {
	return false
}
