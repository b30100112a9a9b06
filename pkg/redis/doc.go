// Package redis connects the process-external session backend.
//
// [Config] is populated from the environment and turned into a pinged
// go-redis client by [Connect]. The client is then handed to
// session.NewRedisStore:
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	store := session.NewRedisStore(client, session.WithRedisPrefix(cfg.Redis.Prefix))
//
// [Healthcheck] and [Shutdown] plug into the app's readiness endpoint and
// shutdown hooks.
package redis
