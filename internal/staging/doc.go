// Package staging reclaims per-job workspaces left in work_dir by jobs
// that crashed or were killed before releasing them.
package staging
