// Package cascade escalates an unread notification through its optional
// channels on a delayed schedule.
//
// A cascade config is an ordered list of steps, each naming a channel, a
// delay relative to the previous step, and channel options. Notify schedules
// step 0 (or fires it in-process with WithImmediateFirst); every fire
// re-reads the notification and stops when it was opened or deleted in the
// meantime. Opening the notification is the only cancellation mechanism,
// checked at fire time, which also makes duplicate fires from an
// at-least-once scheduler harmless.
//
// Channel failures follow a single policy flag: rescued failures become step
// results and the cascade continues; unrescued failures propagate and the
// next step is never scheduled. A channel the notifiable does not expose, or
// one the target opted out of, is a logged status rather than an error.
//
// # Basic Usage
//
//	cfg, err := cascade.ParseConfigYAML([]byte(`
//	- target: slack
//	  delay: 5m
//	- target: sms
//	  delay: 10m
//	`))
//
//	cascader := cascade.NewCascader(storage, resolver, cascade.NewQueueScheduler(enqueuer),
//	    cascade.WithSubscriptions(subs),
//	    cascade.WithRescueChannelErrors(),
//	)
//
//	started, err := cascader.Notify(ctx, n, cfg)
//
// The worker side registers the fire handler on the task queue:
//
//	worker.RegisterHandlers(cascade.NewFireTaskHandler(cascader))
package cascade
