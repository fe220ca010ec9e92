// Package services holds the document coordinator and the services built
// around it: search, stats, health, reconciliation and the task scheduler.
// Services only talk to driven ports, never to concrete adapters.
package services
