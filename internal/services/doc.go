// Package services defines the shared error vocabulary for external service
// integrations and the transient/permanent classifier the job poller uses to
// decide between retrying and failing fast.
package services
