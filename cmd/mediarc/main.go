// mediarc reconciles a phone-resident media folder with an archive folder
// under a size budget.
//
// It copies files missing from the archive (preserving modification times)
// and, depending on mode, trims or rebalances the source folder to keep it
// under a configured size limit while keeping the most valuable files
// according to a configurable ordering policy.
//
// Usage:
//
//	# Back up new files
//	mediarc run -s /sdcard/WhatsApp -a /backup/whatsapp
//
//	# Trim the source folder down to 512MiB, keeping recent files
//	mediarc run -s /sdcard/WhatsApp -a /backup/whatsapp \
//	    --mode trim --size-limit 512MiB --keep-newer-than 14d
//
//	# Preview without touching anything
//	mediarc run -s /sdcard/WhatsApp -a /backup/whatsapp --mode sync -n
//
//	# Nightly trim as a daemon
//	mediarc run --config mediarc.yaml --schedule "0 3 * * *"
//
//	# Re-run whenever the source folder changes
//	mediarc watch --config mediarc.yaml
//
//	# Inspect past runs
//	mediarc history --limit 10
package main

func main() {
	Execute()
}
