// Package main runs backgitup, a daemon that keeps local mirrors of every
// GitHub repository a token can access.
package main

import "github.com/backgitup/backgitup/internal"

func main() {
	internal.Run()
}
