package ocr

import (
	"sync"

	"mediacorral/internal/apperr"
)

// EnginePool lazily creates Engine instances for one language and recycles
// them across calls: Get pops an idle instance or creates a new one, and
// the returned Instance's Close pushes it back onto the stack instead of
// releasing it, standing in for the original's pool-on-drop behavior.
type EnginePool struct {
	factory   EngineFactory
	language  string
	variables []Variable

	mu        sync.Mutex
	instances []Engine
}

// NewEnginePool builds a pool for one language. variables are applied to
// every engine instance the pool creates.
func NewEnginePool(factory EngineFactory, language string, variables []Variable) *EnginePool {
	return &EnginePool{factory: factory, language: language, variables: variables}
}

// Instance is a borrowed Engine. Close must be called exactly once to
// return it to the pool.
type Instance struct {
	Engine
	pool *EnginePool
}

// Close returns the instance to its pool rather than releasing the
// underlying engine.
func (i *Instance) Close() error {
	i.pool.mu.Lock()
	i.pool.instances = append(i.pool.instances, i.Engine)
	i.pool.mu.Unlock()
	return nil
}

// Get borrows an engine instance, creating one if the pool is empty.
func (p *EnginePool) Get() (*Instance, error) {
	p.mu.Lock()
	n := len(p.instances)
	if n > 0 {
		e := p.instances[n-1]
		p.instances = p.instances[:n-1]
		p.mu.Unlock()
		return &Instance{Engine: e, pool: p}, nil
	}
	p.mu.Unlock()

	e, err := p.factory(p.language, p.variables)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrOCR, component, "EnginePool.Get", "creating engine instance for language "+p.language, err)
	}
	for _, v := range p.variables {
		if err := e.SetVariable(v); err != nil {
			return nil, apperr.Wrap(apperr.ErrOCR, component, "EnginePool.Get", "setting engine variable "+v.Name, err)
		}
	}
	return &Instance{Engine: e, pool: p}, nil
}

// EngineCache is a process-wide language-to-pool map, so every subtitle
// track in the same language across an entire rip job shares one set of
// recyclable engine instances instead of re-initializing per track.
type EngineCache struct {
	factory EngineFactory

	mu    sync.Mutex
	pools map[string]*EnginePool
}

// NewEngineCache builds a cache that creates engines via factory.
func NewEngineCache(factory EngineFactory) *EngineCache {
	return &EngineCache{factory: factory, pools: make(map[string]*EnginePool)}
}

// deterministicVariables are applied to every pool this cache creates, so
// OCR output is reproducible across runs of the same frame.
var deterministicVariables = []Variable{
	{Name: "classify_enable_learning", Value: "0"},
	{Name: "tessedit_pageseg_mode", Value: "6"},
	{Name: "tessedit_do_invert", Value: "0"},
	{Name: "tessedit_char_blacklist", Value: "|\\/`_~{}"},
}

// Pool returns the shared pool for language, creating it on first use.
func (c *EngineCache) Pool(language string) *EnginePool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pools[language]; ok {
		return p
	}
	p := NewEnginePool(c.factory, language, deterministicVariables)
	c.pools[language] = p
	return p
}
