// Package redis connects the notification library to a Redis server.
//
// It wraps the go-redis client with an env-driven Config, a Connect
// function that retries until the server answers or the configured
// timeout expires, and a Healthcheck probe. The subscription package
// builds its Redis-backed storage on top of these helpers; see
// subscription.NewRedisStorageFromConfig.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Failures wrap the package sentinels (ErrFailedToParseRedisConnString,
// ErrRedisNotReady, ErrHealthcheckFailed) so callers can branch with
// errors.Is.
package redis
