// Package model holds the raw input types shared by the core packages.
package model
