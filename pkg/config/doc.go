// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each package in this module declares its own Config struct with env tags;
// the composition root loads them through config.MustLoad at startup. Loading
// is cached per type, so independent components can safely load the same
// configuration without re-parsing the environment.
package config
