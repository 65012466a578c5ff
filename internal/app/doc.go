// Package app wires the feature engine together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, an optional YAML file and LFE_* variables
//  2. Initialize logging and OpenTelemetry
//  3. Load the loan dataset and build the entity set
//  4. Build the primitive catalog and the synthesizer
//  5. Create the feature and health services
//  6. Set up middleware, handlers and the HTTP server
//
// A dataset that cannot be loaded stops startup with an error; the process
// never serves requests without data.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout and flushes telemetry. The package never
// calls os.Exit.
package app
