// Package testsupport holds builders shared by package tests: temp-directory
// configs with dummy credentials, opened stores, and fake model files.
package testsupport
