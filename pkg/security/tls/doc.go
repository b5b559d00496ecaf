/*
Package tls terminates TLS for the relay listener.

The serving certificate is held by a Reloader, which loads the pair once at
startup and replaces it when the files change on disk:

	reloader, err := tls.NewReloader(cfg.CertFile, cfg.KeyFile,
		tls.WithReloadObserver(collector),
		tls.WithReloadLogger(logger),
	)
	if err != nil {
		return err
	}
	go reloader.Watch(ctx)

	tlsConfig, err := tls.ServerConfig(cfg, reloader)

A reload that fails validation keeps the previous pair. ExpiryMonitor reports
the remaining validity on a cron schedule and logs a warning inside the
configured window.

GenerateSelfSigned creates a throwaway pair for local development and tests.
*/
package tls
