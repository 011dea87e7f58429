// Package config builds the process configuration once at startup.
//
// Values come from an optional .env file and the environment. Every
// integration is optional except Todoist, which is required for the server
// to consider itself minimally functional.
package config
