package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           falbridge API
// @version         1.0
// @description     HTTP API for credential switching and node metadata of the fal.ai bridge.
//
// @contact.name   falbridge maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
