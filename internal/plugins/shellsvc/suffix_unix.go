//go:build !windows

package shellsvc

const exeSuffix = ""
