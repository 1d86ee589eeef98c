// Package testutil holds fakes and fixtures shared by package tests.
package testutil
