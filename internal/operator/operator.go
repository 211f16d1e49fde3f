package operator

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-tracker/internal/feed"
	"github.com/carson-networks/finance-tracker/internal/operator/actions"
	"github.com/carson-networks/finance-tracker/internal/storage"
)

// WriterOpener starts write transactions. *storage.Storage satisfies it.
type WriterOpener interface {
	Write(ctx context.Context) (*storage.Writer, error)
}

// Operator is the worker that processes items from the queue.
type Operator struct {
	storage  WriterOpener
	notifier feed.Notifier
	logger   logrus.FieldLogger
	queue    chan ActionItem
}

func NewOperator(s WriterOpener, notifier feed.Notifier, logger logrus.FieldLogger, queue chan ActionItem) *Operator {
	return &Operator{
		storage:  s,
		notifier: notifier,
		logger:   logger,
		queue:    queue,
	}
}

// Run listens to the queue and processes items. Exits when the queue is closed.
func (o *Operator) Run() {
	for item := range o.queue {
		item.response <- ActionItemResponse{err: o.processItem(item)}
	}
}

func (o *Operator) processItem(item ActionItem) error {
	if err := item.ctx.Err(); err != nil {
		return err
	}

	writer, err := o.storage.Write(item.ctx)
	if err != nil {
		return err
	}

	err = item.action.Perform(item.ctx, writer)
	if err != nil {
		_ = writer.Rollback(item.ctx)
		return err
	}

	if err = writer.Commit(item.ctx); err != nil {
		return err
	}

	// The write is durable at this point; a lost signal only delays live views.
	if owner := item.action.Owner(); owner != "" && o.notifier != nil {
		if err := o.notifier.Publish(context.WithoutCancel(item.ctx), owner); err != nil {
			o.logger.WithError(err).WithField("ownerID", owner).Error("Operator.processItem.publish failed")
		}
	}

	return nil
}

type ActionItem struct {
	ctx      context.Context
	action   actions.IAction
	response chan ActionItemResponse
}

type ActionItemResponse struct {
	err error
}
