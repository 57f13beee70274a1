// Package main provides the entry point of restcore, a convention-based REST service.
// Model files in the models directory are compiled into gorm models, their tables are
// synchronised on start and every model without a custom router under internal/api
// gets generated list, get, create, put, patch and delete routes served by fiber.
package main
