package tinyhttp

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	serverDate     atomic.Value
	serverDateOnce sync.Once
)

func updateServerDate() {
	refreshServerDate()
	go func() {
		for {
			time.Sleep(time.Second)
			refreshServerDate()
		}
	}()
}

func refreshServerDate() {
	b := AppendHTTPDate(nil, time.Now())
	serverDate.Store(b)
}

func getServerDate() []byte {
	serverDateOnce.Do(updateServerDate)
	return serverDate.Load().([]byte)
}
