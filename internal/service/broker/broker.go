package broker

import (
	"sync"

	"github.com/krobus00/tick-follower/internal/entity"
)

var (
	registryMu           sync.RWMutex
	GlobalBrokerRegistry = make(map[entity.BrokerName]entity.Broker)
)

func RegisterBroker(name entity.BrokerName, impl entity.Broker) {
	registryMu.Lock()
	defer registryMu.Unlock()
	GlobalBrokerRegistry[name] = impl
}

func GetBroker(name entity.BrokerName) (entity.Broker, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	impl, ok := GlobalBrokerRegistry[name]
	return impl, ok
}
