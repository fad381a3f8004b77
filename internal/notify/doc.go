// Package notify stores per-user notifications about tasks.
//
// Notifications come from two places: task events (created, completed),
// delivered through Service.TaskEvent as a tasks.EventSink, and a daily
// cron job (Reminder) that reports tasks due tomorrow and overdue tasks.
// Each notification has a dedup key so a reminder is written at most once
// per task and due date.
package notify
