package zookeeper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-zookeeper/zk"
	"github.com/hysios/zkregistry/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// registrar provisions the consumer side of an interface in the
// ensemble: a persistent consumers root plus an ephemeral node that
// describes this process. The ephemeral node is the liveness mechanism;
// it is never deleted explicitly and vanishes with the session.
type registrar struct {
	client   func() Client
	settings Settings
	root     string
	localIP  string
}

// Register creates the consumers root and this process's consumer node.
// Idempotent: nodes that already exist are left alone.
func (r *registrar) Register(application, interfaceName string) error {
	setting, ok := r.settings.Setting(interfaceName)
	if !ok {
		return &SettingNotFoundError{Interface: interfaceName}
	}

	root := fmt.Sprintf("/%s/%s/consumers", r.root, interfaceName)
	if err := r.ensurePath(root); err != nil {
		return errors.Wrapf(err, "ensure consumers root %s", root)
	}

	node := root + "/" + url.QueryEscape(r.consumerURL(application, interfaceName, setting))
	exists, err := r.client().Exists(node)
	if err != nil {
		return errors.Wrapf(err, "check consumer node %s", node)
	}
	if exists {
		logger.Logger.Debug("consumer node already present",
			zap.String("interface", interfaceName),
			zap.String("application", application))
		return nil
	}

	if _, err := r.client().Create(node, nil, zk.FlagEphemeral); err != nil && err != zk.ErrNodeExists {
		return errors.Wrapf(err, "create consumer node %s", node)
	}

	logger.Logger.Info("registered consumer",
		zap.String("interface", interfaceName),
		zap.String("application", application))
	return nil
}

// ensurePath creates every missing segment of path as a persistent node.
func (r *registrar) ensurePath(path string) error {
	var node strings.Builder
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		node.WriteString("/")
		node.WriteString(segment)

		exists, err := r.client().Exists(node.String())
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := r.client().Create(node.String(), nil, 0); err != nil && err != zk.ErrNodeExists {
			return err
		}
	}
	return nil
}

// consumerURL encodes this process's demand for the interface. Keys are
// emitted in byte order by url.Values.Encode.
func (r *registrar) consumerURL(application, interfaceName string, setting Setting) string {
	query := url.Values{}
	query.Set("interface", interfaceName)
	query.Set("application", application)
	query.Set("category", "consumers")
	query.Set("check", "false")
	query.Set("method", "")
	query.Set("revision", "")
	query.Set("version", setting.Version)
	query.Set("group", setting.Group)
	query.Set("side", "consumer")

	return fmt.Sprintf("consumer://%s/%s?%s", r.localIP, interfaceName, query.Encode())
}
