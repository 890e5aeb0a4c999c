package logging

// Per-category convenience helpers, printf-style. These keep call sites short:
// logging.Discovery("run complete: %d findings", n).

func Discovery(format string, args ...interface{}) { Get(CategoryDiscovery).Info(format, args...) }
func DiscoveryDebug(format string, args ...interface{}) {
	Get(CategoryDiscovery).Debug(format, args...)
}
func DiscoveryWarn(format string, args ...interface{}) { Get(CategoryDiscovery).Warn(format, args...) }
func DiscoveryError(format string, args ...interface{}) {
	Get(CategoryDiscovery).Error(format, args...)
}

func Source(format string, args ...interface{})      { Get(CategorySource).Info(format, args...) }
func SourceDebug(format string, args ...interface{}) { Get(CategorySource).Debug(format, args...) }
func SourceWarn(format string, args ...interface{})  { Get(CategorySource).Warn(format, args...) }
func SourceError(format string, args ...interface{}) { Get(CategorySource).Error(format, args...) }

func Browser(format string, args ...interface{})      { Get(CategoryBrowser).Info(format, args...) }
func BrowserDebug(format string, args ...interface{}) { Get(CategoryBrowser).Debug(format, args...) }
func BrowserWarn(format string, args ...interface{})  { Get(CategoryBrowser).Warn(format, args...) }
func BrowserError(format string, args ...interface{}) { Get(CategoryBrowser).Error(format, args...) }

func Intent(format string, args ...interface{})      { Get(CategoryIntent).Info(format, args...) }
func IntentDebug(format string, args ...interface{}) { Get(CategoryIntent).Debug(format, args...) }
func IntentWarn(format string, args ...interface{})  { Get(CategoryIntent).Warn(format, args...) }
func IntentError(format string, args ...interface{}) { Get(CategoryIntent).Error(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...interface{})  { Get(CategoryStore).Warn(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

func Agent(format string, args ...interface{})     { Get(CategoryAgent).Info(format, args...) }
func AgentWarn(format string, args ...interface{}) { Get(CategoryAgent).Warn(format, args...) }
